// Package capture grabs a rectangular region of the screen.
//
// Selections are given as two corner points in any order and must be at
// least MinSize pixels on each side. Grab reads the pixels through
// github.com/kbinani/screenshot; GrabFrom accepts any Source so callers
// without a display can substitute their own.
package capture
