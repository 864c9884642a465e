// Package services turns storage roots into a StorageIndex and keeps the
// feeds of a playback session in lockstep. It also hosts the scheduler,
// watcher and settings services. Everything external is reached through
// the driven ports.
package services
