// Package player provides playback surfaces and the wall clock used by
// playback sessions.
//
// ClockSurface plays nothing: it probes each segment's duration and reports
// Ended when that much time has passed, which is enough to drive lockstep
// playback headlessly. ExecSurface hands each segment to an external player
// process such as ffplay.
package player
