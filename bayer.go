package invader

// bayerOrder is the 8x8 Bayer index matrix, row major.
var bayerOrder = [64]int{
	0, 32, 8, 40, 2, 34, 10, 42,
	48, 16, 56, 24, 50, 18, 58, 26,
	12, 44, 4, 36, 14, 46, 6, 38,
	60, 28, 52, 20, 62, 30, 54, 22,
	3, 35, 11, 43, 1, 33, 9, 41,
	51, 19, 59, 27, 49, 17, 57, 25,
	15, 47, 7, 39, 13, 45, 5, 37,
	63, 31, 55, 23, 61, 29, 53, 21,
}

// bayerMatrix holds the thresholds normalized to [-0.5, 0.5).
var bayerMatrix = func() (m [64]float64) {
	for i, v := range bayerOrder {
		m[i] = float64(v)/64.0 - 0.5
	}
	return
}()

func mod8(n int) int {
	n %= 8
	if n < 0 {
		n += 8
	}
	return n
}

// Threshold returns the ordered dithering bias for the pixel at (x, y). The
// result is in [-0.5, 0.5) and repeats every 8 pixels on both axes.
func Threshold(x, y int) float64 {
	return bayerMatrix[mod8(x)+8*mod8(y)]
}
