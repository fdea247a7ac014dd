// Package tremor implements a temporal playback engine for earthquake
// catalogs. It animates a time-sorted sequence of events across a shared time
// cursor and pushes the events visible in a moving window to any number of
// independent views.
//
// Typical usage looks like:
//   - Ingest raw records into a Catalog (see the ingest package)
//   - Create an Engine over the Catalog with the Views to drive
//   - Play, Pause, Reset or Scrub the Engine from your controls
//   - Drive ticks with a Scheduler, or call Engine.Tick from your own loop
//
// Catalogs can be persisted between sessions through the store package and
// its Redis, Postgres, bbolt and SQLite backends. The cmd/tremor program
// renders a map, a timeline and a history panel in the terminal.
package tremor
