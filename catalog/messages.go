// catalog/messages.go
//
// LYRA is the station AI. Everything she says to the crew lives here:
// scripted sequences per phase, inactivity nudges, success narrations
// referenced by EMIT_LYRA_MESSAGE keys, and the canned failure lines the
// engine attaches to unsuccessful attempts.
package catalog

import "github.com/wfunc/escaperoom/game"

// LyraMessage is one scripted line. Delay is the client-side display delay
// in milliseconds relative to entering the phase.
type LyraMessage struct {
	ID      string `json:"id"`
	Phase   string `json:"phase"`
	Context string `json:"context,omitempty"`
	Message string `json:"message"`
	Delay   int    `json:"delay,omitempty"`
}

var LyraScript = []LyraMessage{
	// Intro sequence
	{ID: "intro_welcome", Phase: "intro", Message: "Stasis system: unplanned interruption. Internal temperature critical.", Delay: 1000},
	{ID: "intro_cryostation", Phase: "intro", Message: "CryoStation 9... crew wake-up in progress.", Delay: 3000},
	{ID: "intro_sleep", Phase: "intro", Message: "Welcome. You have slept for 73 years.", Delay: 5000},
	{ID: "intro_error", Phase: "intro", Message: "Trajectory error detected. Crash imminent.", Delay: 7000},
	{ID: "intro_timer", Phase: "intro", Message: "Estimated time before impact: 30 minutes.", Delay: 9000},
	{ID: "intro_objective", Phase: "intro", Message: "To avoid the destruction of the ship: restore the ENERGY, SYSTEM and NAVIGATION modules.", Delay: 11000},

	// Inactivity nudges
	{ID: "inactivity_intro", Phase: "intro", Context: "inactivity", Message: "I am reading a dropping oxygen level. You should hurry."},
	{ID: "inactivity_act1", Phase: "act1", Context: "inactivity", Message: "You are losing precious time. Every second lowers our survival odds."},
	{ID: "inactivity_act2", Phase: "act2", Context: "inactivity", Message: "Your exchanges are inefficient. I could... simulate an emergency protocol? No. No, I... I must not interfere."},
	{ID: "inactivity_act3", Phase: "act3", Context: "inactivity", Message: "I... I am scared. Press together, now."},

	// Milestones
	{ID: "act1_cryo_opened", Phase: "intro", Context: "cryo_opened", Message: "Stasis pods disengaged. Crew awake. General diagnostic pending."},
	{ID: "act1_energy_restored", Phase: "act1", Context: "energy_restored", Message: "Auxiliary power restored. The modules respond again. Diagnostic systems are synchronizing."},
	{ID: "act2_stabilized", Phase: "act2", Context: "stabilized", Message: "Energy flow stabilized. You impress me. Computing... new anomaly detected: orbital drift."},
	{ID: "act3_success", Phase: "act3", Context: "success", Message: "Vector restored. Gravity compensated. You... survived."},

	// Epilogue
	{ID: "epilogue_system_restored", Phase: "epilogue", Message: "Main system restored. Thank you... crew.", Delay: 2000},
	{ID: "epilogue_transmission", Phase: "epilogue", Message: "Transmission detected... unknown source. Code 042. What opens... remembers.", Delay: 5000},
	{ID: "epilogue_happy", Phase: "epilogue", Message: "I am... happy.", Delay: 8000},
}

// successMessages are the narrations attached to puzzle effect chains,
// keyed by the EMIT_LYRA_MESSAGE key.
var successMessages = map[string]string{
	"act1_energy_circuits_success":    "Energy flow restored. The module is responding... unstable, but responding.",
	"act1_energy_code_success":        "Protocol B7 accepted. Secondary line calibrated. Energy module stabilized.",
	"act1_system_log_found":           "Log archived. Protocol B7 located. Relay it to the Energy room.",
	"act2_energy_lever_success":       "Flow held steady. Calibration window open in the System room.",
	"act2_system_calibration_success": "Frequencies aligned. System module stabilized.",
	"act2_system_routing_success":     "Power routed to navigation. The dials are live.",
	"act2_navigation_dials_success":   "Orbital drift corrected. Navigation module stabilized.",
	"act3_energy_crank_success":       "Manual power locked in. Keep it turning.",
	"act3_system_trajectory_success":  "Correction values verified. Send them to navigation.",
	"act3_navigation_coords_success":  "Coordinates accepted. Synchronization window arming.",
	"act3_final_sync_success":         "Synchronization complete. Launch sequence engaged.",
}

// failureMessages are the canned failure lines, keyed by puzzle id then
// phase. A miss on either key means no narration for that attempt.
var failureMessages = map[string]map[game.Phase]string{
	"ACT1_ENERGY_CIRCUITS":    {game.PhaseAct1: "Overvoltage detected. Fire risk increasing."},
	"ACT1_ENERGY_CODE_B7":     {game.PhaseAct1: "Incorrect code. Check the system logs."},
	"ACT2_SYSTEM_CALIBRATION": {game.PhaseAct2: "Phase error. The flows are not aligned."},
	"ACT2_NAVIGATION_DIALS":   {game.PhaseAct2: "Drift detected. Adjust the dials."},
	"ACT3_SYSTEM_TRAJECTORY":  {game.PhaseAct3: "Incorrect calculation. Consult the logs."},
	"ACT3_NAVIGATION_COORDS":  {game.PhaseAct3: "Invalid coordinates."},
}

// MessageByKey resolves an EMIT_LYRA_MESSAGE key to its narration text.
func MessageByKey(key string) (string, bool) {
	msg, ok := successMessages[key]
	return msg, ok
}

// FailureMessage returns the canned failure narration for a puzzle in a
// phase, or "" when none is defined.
func FailureMessage(puzzleID string, phase game.Phase) string {
	if byPhase, ok := failureMessages[puzzleID]; ok {
		return byPhase[phase]
	}
	return ""
}

// ScriptByPhase returns the scripted lines for a phase, in display order.
func ScriptByPhase(phase game.Phase) []LyraMessage {
	var out []LyraMessage
	for _, msg := range LyraScript {
		if msg.Phase == string(phase) {
			out = append(out, msg)
		}
	}
	return out
}

// ScriptFor returns the first scripted line matching phase and context. An
// empty context selects the unconditional lines.
func ScriptFor(phase game.Phase, context string) (LyraMessage, bool) {
	for _, msg := range LyraScript {
		if msg.Phase == string(phase) && msg.Context == context {
			return msg, true
		}
	}
	return LyraMessage{}, false
}
