package naming

import (
	"time"

	"golang.org/x/crypto/argon2"
)

// ArgonConfig is the set of Argon2id cost parameters stored alongside an
// organization and handed back at unlock time, so reconstruction always
// pays the same cost regardless of where it runs.
type ArgonConfig struct {
	MemoryKiB uint32
	Time      uint32
	Threads   uint8
}

// MinWallTime is the floor below which a tuned hash-timing target must
// never drop; TargetWallTime is the policy default.
const MinWallTime = 1 * time.Second

// TargetWallTime is the default wall-time target used at organization
// creation when calibrating Argon2 cost.
const TargetWallTime = 10 * time.Second

const calibrationThreads = 4

// EmpiricallyChooseArgonConfig scans operation-counts from 1 upward as a
// geometric progression (ratio 1.5) against the given memory limit, timing
// one hash per candidate, and returns the first configuration whose wall
// time is at least target. Used only at organization creation, never
// during unlock.
func EmpiricallyChooseArgonConfig(memoryKiB uint32, target time.Duration) ArgonConfig {
	ops := float64(1)
	for {
		timeParam := uint32(ops)
		if timeParam < 1 {
			timeParam = 1
		}

		start := time.Now()
		argon2.IDKey([]byte("calibration-probe"), []byte("0123456789abcdef"), timeParam, memoryKiB, calibrationThreads, 32)
		elapsed := time.Since(start)

		if elapsed >= target {
			return ArgonConfig{MemoryKiB: memoryKiB, Time: timeParam, Threads: calibrationThreads}
		}

		ops *= 1.5
	}
}

// DeriveKey runs Argon2id over password with the stored salt and cost
// parameters, producing a 32-byte key.
func DeriveKey(password string, salt []byte, cfg ArgonConfig) []byte {
	return argon2.IDKey([]byte(password), salt, cfg.Time, cfg.MemoryKiB, cfg.Threads, 32)
}
