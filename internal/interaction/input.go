package interaction

// Input is a discrete user event fed into the Controller.
type Input interface{ isInput() }

type Click struct{ X, Y int }

type Hover struct{ X, Y int }

type Leave struct{}

type CommitHandicap struct{}

type ResetHandicap struct{}

type Pass struct{}

type Resign struct{}

func (Click) isInput()          {}
func (Hover) isInput()          {}
func (Leave) isInput()          {}
func (CommitHandicap) isInput() {}
func (ResetHandicap) isInput()  {}
func (Pass) isInput()           {}
func (Resign) isInput()         {}
