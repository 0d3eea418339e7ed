package db

// Store is outside every role package and is ignored.
type Store struct{}
