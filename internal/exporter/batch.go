package exporter

// Batch partitions elements into contiguous chunks of at most length items,
// preserving order and covering every element exactly once. Only the final
// chunk may be shorter. A length below 1 is treated as 1.
func Batch[T any](elements []T, length int) [][]T {
	if len(elements) == 0 {
		return nil
	}
	if length < 1 {
		length = 1
	}

	batches := make([][]T, 0, (len(elements)+length-1)/length)
	for start := 0; start < len(elements); start += length {
		end := min(start+length, len(elements))
		batches = append(batches, elements[start:end])
	}
	return batches
}
