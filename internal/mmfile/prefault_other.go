//go:build !linux

package mmfile

// Prefault makes every page of data resident. With write set, pages are also
// dirtied, without changing their contents.
func Prefault(data []byte, write bool) error {
	if len(data) == 0 {
		return nil
	}
	return touch(data, write)
}
