package encounter

// xpThresholds holds per-character XP thresholds for levels 1-20,
// indexed as [level-1][easy, medium, hard, deadly].
var xpThresholds = [20][4]int{
	{25, 50, 75, 100},
	{50, 100, 150, 200},
	{75, 150, 225, 400},
	{125, 250, 375, 500},
	{250, 500, 750, 1100},
	{300, 600, 900, 1400},
	{350, 750, 1100, 1700},
	{450, 900, 1400, 2100},
	{550, 1100, 1600, 2400},
	{600, 1200, 1900, 2800},
	{800, 1600, 2400, 3600},
	{1000, 2000, 3000, 4500},
	{1100, 2200, 3400, 5100},
	{1250, 2500, 3800, 5700},
	{1400, 2800, 4300, 6400},
	{1600, 3200, 4800, 7200},
	{2000, 3900, 5900, 8800},
	{2100, 4200, 6300, 9500},
	{2400, 4900, 7300, 10900},
	{2800, 5700, 8500, 12700},
}

type BudgetInput struct {
	PartySize  int
	PartyLevel int
	Difficulty string
}

// BudgetFunc computes the XP budget of an encounter.
type BudgetFunc func(BudgetInput) int

// Budget is the default BudgetFunc: the party's summed XP threshold.
func Budget(in BudgetInput) int {
	party := normalizeParty(Party{Size: in.PartySize, Level: in.PartyLevel, Difficulty: in.Difficulty})
	column := 1
	switch party.Difficulty {
	case DifficultyEasy:
		column = 0
	case DifficultyHard:
		column = 2
	case DifficultyDeadly:
		column = 3
	}
	return xpThresholds[party.Level-1][column] * party.Size
}
