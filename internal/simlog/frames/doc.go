// Package frames builds typed frame and map records from lexed telemetry
// logs.
//
// A log is a map section followed by frame sections:
//
//	map attributes
//	+x70  crosswalk entries, each ended by +x60
//	+x70  junction entries, each ended by +x60 (optional)
//	*x90
//	frame: vehicles (-x60 each) *x70 lights (+x40 each) *x70
//	       signs (+x50 each) *x70 pedestrians (+x40 each)
//	*x80
//	...
//
// Build parses the whole log, attaches parsed locations and forward
// vectors to every entity, and derives ego distances. Map-relative flags
// are computed on demand through Map methods.
package frames
