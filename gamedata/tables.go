package gamedata

import "strings"

// Cost is the price of producing one instance of a type.
type Cost struct {
	Minerals int
	Vespene  int
	Supply   int // in whole supply; zerglings are paired so a pair costs 1
}

var costs = map[string]Cost{
	Drone:             {Minerals: 50, Supply: 1},
	Overlord:          {Minerals: 100},
	Overseer:          {Minerals: 50, Vespene: 50},
	OverlordTransport: {Minerals: 25, Vespene: 25},
	Queen:             {Minerals: 150, Supply: 2},
	Zergling:          {Minerals: 50, Supply: 1},
	Baneling:          {Minerals: 25, Vespene: 25},
	Roach:             {Minerals: 75, Vespene: 25, Supply: 2},
	Ravager:           {Minerals: 25, Vespene: 75, Supply: 1},
	Hydralisk:         {Minerals: 100, Vespene: 50, Supply: 2},
	Lurker:            {Minerals: 50, Vespene: 100, Supply: 1},
	Infestor:          {Minerals: 100, Vespene: 150, Supply: 2},
	SwarmHost:         {Minerals: 100, Vespene: 75, Supply: 3},
	Mutalisk:          {Minerals: 100, Vespene: 100, Supply: 2},
	Corruptor:         {Minerals: 150, Vespene: 100, Supply: 2},
	BroodLord:         {Minerals: 150, Vespene: 150, Supply: 2},
	Ultralisk:         {Minerals: 275, Vespene: 200, Supply: 6},
	Viper:             {Minerals: 100, Vespene: 200, Supply: 3},

	Hatchery:         {Minerals: 300},
	Lair:             {Minerals: 150, Vespene: 100},
	Hive:             {Minerals: 200, Vespene: 150},
	Extractor:        {Minerals: 25},
	SpawningPool:     {Minerals: 200},
	EvolutionChamber: {Minerals: 75},
	RoachWarren:      {Minerals: 150},
	BanelingNest:     {Minerals: 100, Vespene: 50},
	HydraliskDen:     {Minerals: 100, Vespene: 100},
	LurkerDen:        {Minerals: 100, Vespene: 150},
	InfestationPit:   {Minerals: 100, Vespene: 100},
	Spire:            {Minerals: 200, Vespene: 200},
	GreaterSpire:     {Minerals: 100, Vespene: 150},
	NydusNetwork:     {Minerals: 150, Vespene: 150},
	UltraliskCavern:  {Minerals: 150, Vespene: 200},
	SpineCrawler:     {Minerals: 100},
	SporeCrawler:     {Minerals: 75},

	ZerglingMovementSpeed: {Minerals: 100, Vespene: 100},
	ZerglingAttackSpeed:   {Minerals: 200, Vespene: 200},
	CentrifugalHooks:      {Minerals: 100, Vespene: 100},
	GlialReconstitution:   {Minerals: 100, Vespene: 100},
	TunnelingClaws:        {Minerals: 100, Vespene: 100},
	Burrow:                {Minerals: 100, Vespene: 100},
	OverlordSpeed:         {Minerals: 100, Vespene: 100},
	GroovedSpines:         {Minerals: 100, Vespene: 100},
	MuscularAugments:      {Minerals: 100, Vespene: 100},
	ChitinousPlating:      {Minerals: 150, Vespene: 150},
	AnabolicSynthesis:     {Minerals: 150, Vespene: 150},
	MissileWeapons1:       {Minerals: 100, Vespene: 100},
	MissileWeapons2:       {Minerals: 150, Vespene: 150},
	MissileWeapons3:       {Minerals: 200, Vespene: 200},
	MeleeWeapons1:         {Minerals: 100, Vespene: 100},
	MeleeWeapons2:         {Minerals: 150, Vespene: 150},
	MeleeWeapons3:         {Minerals: 200, Vespene: 200},
	GroundArmors1:         {Minerals: 150, Vespene: 150},
	GroundArmors2:         {Minerals: 225, Vespene: 225},
	GroundArmors3:         {Minerals: 300, Vespene: 300},
	FlyerWeapons1:         {Minerals: 100, Vespene: 100},
	FlyerArmors1:          {Minerals: 150, Vespene: 150},
}

// CostOf returns the production cost of t. Unknown types cost nothing.
func CostOf(t string) Cost {
	return costs[t]
}

// techRequirements maps a type to the structure that must be finished
// before it can be started.
var techRequirements = map[string]string{
	Queen:     SpawningPool,
	Zergling:  SpawningPool,
	Baneling:  BanelingNest,
	Roach:     RoachWarren,
	Ravager:   RoachWarren,
	Hydralisk: HydraliskDen,
	Lurker:    LurkerDen,
	Infestor:  InfestationPit,
	SwarmHost: InfestationPit,
	Mutalisk:  Spire,
	Corruptor: Spire,
	BroodLord: GreaterSpire,
	Ultralisk: UltraliskCavern,
	Viper:     Hive,
	Overseer:  Lair,

	Lair:             SpawningPool,
	Hive:             InfestationPit,
	SpawningPool:     Hatchery,
	EvolutionChamber: Hatchery,
	RoachWarren:      SpawningPool,
	BanelingNest:     SpawningPool,
	SpineCrawler:     SpawningPool,
	SporeCrawler:     SpawningPool,
	HydraliskDen:     Lair,
	LurkerDen:        HydraliskDen,
	InfestationPit:   Lair,
	Spire:            Lair,
	NydusNetwork:     Lair,
	UltraliskCavern:  Hive,
	GreaterSpire:     Hive,

	GlialReconstitution: Lair,
	TunnelingClaws:      Lair,
	OverlordSpeed:       Hatchery,
	Burrow:              Hatchery,
	ZerglingAttackSpeed: Hive,
	MissileWeapons2:     Lair,
	MissileWeapons3:     Hive,
	MeleeWeapons2:       Lair,
	MeleeWeapons3:       Hive,
	GroundArmors2:       Lair,
	GroundArmors3:       Hive,
}

// TechRequirement returns the structure that must exist (finished) before t
// can be started.
func TechRequirement(t string) (string, bool) {
	r, ok := techRequirements[t]
	return r, ok
}

// producers maps structure-issued production (upgrades, structure morphs,
// queens) to the structures that can carry it out when idle.
var producers = map[string][]string{
	Queen:        {Hatchery, Lair, Hive},
	Lair:         {Hatchery},
	Hive:         {Lair},
	GreaterSpire: {Spire},

	ZerglingMovementSpeed: {SpawningPool},
	ZerglingAttackSpeed:   {SpawningPool},
	CentrifugalHooks:      {BanelingNest},
	GlialReconstitution:   {RoachWarren},
	TunnelingClaws:        {RoachWarren},
	Burrow:                {Hatchery, Lair, Hive},
	OverlordSpeed:         {Hatchery, Lair, Hive},
	GroovedSpines:         {HydraliskDen},
	MuscularAugments:      {HydraliskDen},
	ChitinousPlating:      {UltraliskCavern},
	AnabolicSynthesis:     {UltraliskCavern},
	MissileWeapons1:       {EvolutionChamber},
	MissileWeapons2:       {EvolutionChamber},
	MissileWeapons3:       {EvolutionChamber},
	MeleeWeapons1:         {EvolutionChamber},
	MeleeWeapons2:         {EvolutionChamber},
	MeleeWeapons3:         {EvolutionChamber},
	GroundArmors1:         {EvolutionChamber},
	GroundArmors2:         {EvolutionChamber},
	GroundArmors3:         {EvolutionChamber},
	FlyerWeapons1:         {Spire, GreaterSpire},
	FlyerArmors1:          {Spire, GreaterSpire},
}

// Producers returns the structure types able to produce t, or nil when t is
// produced from larva, a worker, or a unit morph.
func Producers(t string) []string {
	return producers[t]
}

// morphPrecursors maps unit morphs to the unit that must be idle to start them.
var morphPrecursors = map[string]string{
	Baneling:          Zergling,
	Ravager:           Roach,
	Lurker:            Hydralisk,
	BroodLord:         Corruptor,
	Overseer:          Overlord,
	OverlordTransport: Overlord,
}

// MorphPrecursor returns the unit type that morphs into t.
func MorphPrecursor(t string) (string, bool) {
	p, ok := morphPrecursors[t]
	return p, ok
}

var burrowed = map[string]string{
	DroneBurrowed:     Drone,
	QueenBurrowed:     Queen,
	ZerglingBurrowed:  Zergling,
	BanelingBurrowed:  Baneling,
	RoachBurrowed:     Roach,
	RavagerBurrowed:   Ravager,
	HydraliskBurrowed: Hydralisk,
	LurkerBurrowed:    Lurker,
	InfestorBurrowed:  Infestor,
	SwarmHostBurrowed: SwarmHost,
	UltraliskBurrowed: Ultralisk,
}

// UnburrowedOf maps a burrowed form onto its base type.
func UnburrowedOf(t string) (string, bool) {
	b, ok := burrowed[t]
	return b, ok
}

var uprooted = map[string]string{
	SpineCrawlerUprooted: SpineCrawler,
	SporeCrawlerUprooted: SporeCrawler,
}

// RootedOf maps an uprooted crawler onto its rooted type.
func RootedOf(t string) (string, bool) {
	r, ok := uprooted[t]
	return r, ok
}

var cocoons = map[string]string{
	BanelingCocoon:  Baneling,
	RavagerCocoon:   Ravager,
	LurkerCocoon:    Lurker,
	BroodLordCocoon: BroodLord,
	OverlordCocoon:  Overseer,
}

// CocoonTarget maps a morph cocoon onto the unit it will hatch into.
func CocoonTarget(t string) (string, bool) {
	c, ok := cocoons[t]
	return c, ok
}

var lowerTier = map[string]string{
	Lair:         Hatchery,
	Hive:         Lair,
	GreaterSpire: Spire,
}

// LowerTierOf returns the structure t was upgraded from.
func LowerTierOf(t string) (string, bool) {
	l, ok := lowerTier[t]
	return l, ok
}

// Satisfies reports whether owning have fulfils a requirement on need,
// following the upgrade chain (a Hive satisfies Lair and Hatchery).
func Satisfies(have, need string) bool {
	for t, ok := have, true; ok; t, ok = lowerTier[t] {
		if t == need {
			return true
		}
	}
	return false
}

var upgrades = map[string]struct{}{}
var structures = map[string]struct{}{}
var canonical = map[string]string{}

func init() {
	for _, u := range []string{
		ZerglingMovementSpeed, ZerglingAttackSpeed, CentrifugalHooks, GlialReconstitution,
		TunnelingClaws, Burrow, OverlordSpeed, GroovedSpines, MuscularAugments,
		ChitinousPlating, AnabolicSynthesis,
		MissileWeapons1, MissileWeapons2, MissileWeapons3,
		MeleeWeapons1, MeleeWeapons2, MeleeWeapons3,
		GroundArmors1, GroundArmors2, GroundArmors3,
		FlyerWeapons1, FlyerArmors1,
	} {
		upgrades[u] = struct{}{}
	}
	for _, s := range []string{
		Hatchery, Lair, Hive, Extractor, ExtractorRich, SpawningPool, EvolutionChamber,
		RoachWarren, BanelingNest, HydraliskDen, LurkerDen, InfestationPit, Spire,
		GreaterSpire, NydusNetwork, UltraliskCavern, SpineCrawler, SporeCrawler,
		SpineCrawlerUprooted, SporeCrawlerUprooted,
	} {
		structures[s] = struct{}{}
	}

	names := []string{
		Larva, Egg, Drone, Overlord, OverlordTransport, Overseer, Queen, Zergling, Baneling,
		Roach, Ravager, Hydralisk, Lurker, Infestor, SwarmHost, Mutalisk, Corruptor,
		BroodLord, Ultralisk, Viper,
		BanelingCocoon, RavagerCocoon, LurkerCocoon, BroodLordCocoon, OverlordCocoon,
	}
	for b := range burrowed {
		names = append(names, b)
	}
	for s := range structures {
		names = append(names, s)
	}
	for u := range upgrades {
		names = append(names, u)
	}
	for _, n := range names {
		canonical[strings.ToLower(n)] = n
	}
}
