// meta/meta.go
package meta

import "time"

// GO_ROUTINES defines the number of goroutines scoring candidate paths.
const GO_ROUTINES = 8

// BUDGET defines the wall-clock budget to rank the paths of one unit.
const BUDGET = 250 * time.Millisecond

// BATCH_SIZE defines how many paths are pulled between deadline checks.
const BATCH_SIZE = 64

// MAX_CANDIDATES caps the paths considered for one unit.
const MAX_CANDIDATES = 4096

// MEMORY_SIZE bounds how many units' previous paths an Intelligence remembers.
const MEMORY_SIZE = 256

// CLUSTER_DISTANCE defines the hex distance that links two units into a cluster.
const CLUSTER_DISTANCE = 3

// CLUSTER_MIN_SIZE defines the smallest group reported as a cluster.
const CLUSTER_MIN_SIZE = 2

// MAX_TURNS defines how many rounds a local skirmish lasts.
const MAX_TURNS = 30
