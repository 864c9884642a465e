// Package driven lists what the core needs from the outside world.
//
// SurfaceFactory, Clock and ConfigStore have to be supplied. The rest may
// be nil and the services carry on without them: a missing ClipCatalogue
// means every start rescans, a missing Prober means placeholder
// durations, a missing Telemetry means no metrics, and so on.
package driven
