package core

// Fletcher16 computes the Fletcher-16 checksum of data.
// It detects accidental divergence between peers; it is not a security measure.
func Fletcher16(data []byte) uint16 {
	var sum1, sum2 uint16
	for _, b := range data {
		sum1 = (sum1 + uint16(b)) % 255
		sum2 = (sum2 + sum1) % 255
	}
	return sum2<<8 | sum1
}
