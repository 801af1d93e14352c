// Package features assembles per-frame feature matrices from built
// frames.
//
// Four assemblers each map a frame sequence and its map to a Matrix with
// one row per frame:
//
//   - scene: traffic light colour, sign placeholders, crosswalk and
//     junction proximity (10 columns)
//   - actor: nearby vehicle, bicycle and pedestrian flags plus relative
//     heading classes (8 columns)
//   - ego_action: steering direction and speed trend (6 columns)
//   - obstacle: per-type presence and bucketed count, two columns per
//     type id observed near the ego anywhere in the sequence
//
// Assemblers are stateless; the same Assembler may run on many logs
// concurrently.
package features
