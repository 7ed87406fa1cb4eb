package domain

// Step is the onboarding wizard position. Steps only move forward.
type Step string

const (
	StepAccount Step = "ACCOUNT"
	StepProfile Step = "PROFILE"
	StepPackage Step = "PACKAGE"
	StepJob     Step = "JOB"
	StepVerify  Step = "VERIFY"
	StepDone    Step = "DONE"
)

var stepRank = map[Step]int{
	StepAccount: 0,
	StepProfile: 1,
	StepPackage: 2,
	StepJob:     3,
	StepVerify:  4,
	StepDone:    5,
}

func (s Step) Rank() int {
	if r, ok := stepRank[s]; ok {
		return r
	}
	return -1
}

func (s Step) Valid() bool {
	_, ok := stepRank[s]
	return ok
}

// Advance returns the later of the current step and target.
func (s Step) Advance(target Step) Step {
	if target.Rank() > s.Rank() {
		return target
	}
	return s
}
