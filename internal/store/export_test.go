package store

// ForceScanPath disables the indexed search path so tests can exercise the
// substring-scan fallback against the same data.
func (s *Store) ForceScanPath() {
	s.ftsAvailable = false
}
