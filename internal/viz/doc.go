// Package viz renders latch traces for the terminal and for files.
//
//   - [PlotTrace] and [PlotComparison]: asciigraph line charts
//   - [SavePNG]: gonum/plot PNG (or any format plot.Save infers)
//   - [LiveModel]: a Bubble Tea view that steps a latch model in real time
//
// # Key Bindings (live view)
//
//	Space - Pause/Resume
//	R     - Reset to precharge
//	+/-   - Steps per frame
//	T     - Cycle color themes
//	Q     - Quit
package viz
