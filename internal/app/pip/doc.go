// Package pip renders the on-stage participant of a call into a raster
// surface and presents that surface in the platform's floating window.
//
// A Lifecycle owns the surface, the hidden playback element and the draw
// loop; a Compositor draws one frame per tick; a Tracker follows the audio
// level of the participant on stage; a Bridge turns UI intents and visibility
// changes into Start and Stop calls and reports the result to a Store.
package pip
