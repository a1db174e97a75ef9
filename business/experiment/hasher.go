package experiment

import (
	"crypto/md5"
	"encoding/binary"
)

const (
	seedSeparator = "|"
	minSplit      = 1
	maxSplit      = 99
	DefaultSplit  = 50
)

// Seed builds the hash input for a (subject, experiment) pair.
func Seed(subject, experiment string) string {
	return subject + seedSeparator + experiment
}

// hash32 is the first 8 hex characters of the MD5 digest of seed read as an
// unsigned integer.
func hash32(seed string) uint32 {
	sum := md5.Sum([]byte(seed))
	return binary.BigEndian.Uint32(sum[:4])
}

// Bucket maps seed to a variant index. With two variants splitForFirst is
// the percentage of seeds that land on variant 0; otherwise the split is
// uniform.
func Bucket(seed string, variantCount, splitForFirst int) int {
	if variantCount <= 1 {
		return 0
	}
	h := hash32(seed)
	if variantCount == 2 {
		if int(h%100) < clampSplit(splitForFirst) {
			return 0
		}
		return 1
	}
	return int(h % uint32(variantCount))
}

func clampSplit(split int) int {
	if split < minSplit {
		return minSplit
	}
	if split > maxSplit {
		return maxSplit
	}
	return split
}
