package game

// Phase 表示剧情阶段 (story chapter). Phases only move forward during play.
type Phase string

const (
	PhaseIntro    Phase = "intro"
	PhaseAct1     Phase = "act1"
	PhaseAct2     Phase = "act2"
	PhaseAct3     Phase = "act3"
	PhaseEpilogue Phase = "epilogue"
)

var phaseOrder = []Phase{PhaseIntro, PhaseAct1, PhaseAct2, PhaseAct3, PhaseEpilogue}

// Index returns the position of the phase in story order, or -1 for an
// unknown phase.
func (p Phase) Index() int {
	for i, candidate := range phaseOrder {
		if candidate == p {
			return i
		}
	}
	return -1
}

// Valid reports whether p is one of the five story phases.
func (p Phase) Valid() bool {
	return p.Index() >= 0
}

// Before reports whether p comes strictly before other in story order.
func (p Phase) Before(other Phase) bool {
	return p.Index() < other.Index()
}
