// Package gamedata holds the static Zerg vocabulary the build engine reasons
// about: type names, their classification, and the equivalence tables used
// to fold alternate in-game forms back onto the type a build order asks for.
package gamedata

import "strings"

// Units.
const (
	Larva             = "Larva"
	Egg               = "Egg"
	Drone             = "Drone"
	Overlord          = "Overlord"
	OverlordTransport = "OverlordTransport"
	Overseer          = "Overseer"
	Queen             = "Queen"
	Zergling          = "Zergling"
	Baneling          = "Baneling"
	Roach             = "Roach"
	Ravager           = "Ravager"
	Hydralisk         = "Hydralisk"
	Lurker            = "Lurker"
	Infestor          = "Infestor"
	SwarmHost         = "SwarmHost"
	Mutalisk          = "Mutalisk"
	Corruptor         = "Corruptor"
	BroodLord         = "BroodLord"
	Ultralisk         = "Ultralisk"
	Viper             = "Viper"
)

// Cocoons and other in-between forms.
const (
	BanelingCocoon  = "BanelingCocoon"
	RavagerCocoon   = "RavagerCocoon"
	LurkerCocoon    = "LurkerCocoon"
	BroodLordCocoon = "BroodLordCocoon"
	OverlordCocoon  = "OverlordCocoon"
)

// Burrowed forms.
const (
	DroneBurrowed     = "DroneBurrowed"
	QueenBurrowed     = "QueenBurrowed"
	ZerglingBurrowed  = "ZerglingBurrowed"
	BanelingBurrowed  = "BanelingBurrowed"
	RoachBurrowed     = "RoachBurrowed"
	RavagerBurrowed   = "RavagerBurrowed"
	HydraliskBurrowed = "HydraliskBurrowed"
	LurkerBurrowed    = "LurkerBurrowed"
	InfestorBurrowed  = "InfestorBurrowed"
	SwarmHostBurrowed = "SwarmHostBurrowed"
	UltraliskBurrowed = "UltraliskBurrowed"
)

// Structures.
const (
	Hatchery             = "Hatchery"
	Lair                 = "Lair"
	Hive                 = "Hive"
	Extractor            = "Extractor"
	ExtractorRich        = "ExtractorRich"
	SpawningPool         = "SpawningPool"
	EvolutionChamber     = "EvolutionChamber"
	RoachWarren          = "RoachWarren"
	BanelingNest         = "BanelingNest"
	HydraliskDen         = "HydraliskDen"
	LurkerDen            = "LurkerDen"
	InfestationPit       = "InfestationPit"
	Spire                = "Spire"
	GreaterSpire         = "GreaterSpire"
	NydusNetwork         = "NydusNetwork"
	UltraliskCavern      = "UltraliskCavern"
	SpineCrawler         = "SpineCrawler"
	SporeCrawler         = "SporeCrawler"
	SpineCrawlerUprooted = "SpineCrawlerUprooted"
	SporeCrawlerUprooted = "SporeCrawlerUprooted"
)

// Upgrades.
const (
	ZerglingMovementSpeed = "ZerglingMovementSpeed"
	ZerglingAttackSpeed   = "ZerglingAttackSpeed"
	CentrifugalHooks      = "CentrifugalHooks"
	GlialReconstitution   = "GlialReconstitution"
	TunnelingClaws        = "TunnelingClaws"
	Burrow                = "Burrow"
	OverlordSpeed         = "OverlordSpeed"
	GroovedSpines         = "GroovedSpines"
	MuscularAugments      = "MuscularAugments"
	ChitinousPlating      = "ChitinousPlating"
	AnabolicSynthesis     = "AnabolicSynthesis"
	MissileWeapons1       = "ZergMissileWeaponsLevel1"
	MissileWeapons2       = "ZergMissileWeaponsLevel2"
	MissileWeapons3       = "ZergMissileWeaponsLevel3"
	MeleeWeapons1         = "ZergMeleeWeaponsLevel1"
	MeleeWeapons2         = "ZergMeleeWeaponsLevel2"
	MeleeWeapons3         = "ZergMeleeWeaponsLevel3"
	GroundArmors1         = "ZergGroundArmorsLevel1"
	GroundArmors2         = "ZergGroundArmorsLevel2"
	GroundArmors3         = "ZergGroundArmorsLevel3"
	FlyerWeapons1         = "ZergFlyerWeaponsLevel1"
	FlyerArmors1          = "ZergFlyerArmorsLevel1"
)

// Races as reported by the game adapter.
const (
	RaceZerg    = "Zerg"
	RaceTerran  = "Terran"
	RaceProtoss = "Protoss"
	RaceRandom  = "Random"
)

// Worker is the economy unit whose production the suppression flags gate.
const Worker = Drone

// SupplyProvider is the unit queued by the emergency supply override.
const SupplyProvider = Overlord

// FirstTierProduction is the structure whose absence lifts production
// suppression so the opening cannot deadlock.
const FirstTierProduction = SpawningPool

// SupplyPerProvider is the supply granted by one supply provider.
const SupplyPerProvider = 8

// IsTownhall reports whether t is a townhall-class structure.
func IsTownhall(t string) bool {
	return t == Hatchery || t == Lair || t == Hive
}

// IsStructureTrained reports whether t is produced by issuing an order to an
// existing structure rather than from larva or a worker.
func IsStructureTrained(t string) bool {
	_, ok := producers[t]
	return ok && !IsUpgrade(t)
}

// IsUpgrade reports whether t is a research upgrade.
func IsUpgrade(t string) bool {
	_, ok := upgrades[t]
	return ok
}

// IsSupplyProvider reports whether t provides supply for the override rule.
func IsSupplyProvider(t string) bool {
	return t == Overlord || t == Overseer || t == OverlordTransport
}

// IsExtractor reports whether t is a vespene extractor.
func IsExtractor(t string) bool {
	return t == Extractor || t == ExtractorRich
}

// Known reports whether t is a type this package knows about.
func Known(t string) bool {
	_, ok := canonical[strings.ToLower(t)]
	return ok
}

// Canonical maps a case-insensitive type name onto its canonical spelling.
// Unknown names are returned unchanged.
func Canonical(t string) string {
	if c, ok := canonical[strings.ToLower(t)]; ok {
		return c
	}
	return t
}

// Races lists the race names accepted by override tables.
func Races() []string {
	return []string{RaceZerg, RaceTerran, RaceProtoss, RaceRandom}
}

// CanonicalRace maps a case-insensitive race name onto its canonical spelling.
// ok is false for names that are not a race.
func CanonicalRace(r string) (string, bool) {
	for _, race := range Races() {
		if strings.EqualFold(race, r) {
			return race, true
		}
	}
	return r, false
}
