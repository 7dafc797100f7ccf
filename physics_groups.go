package marcher

import (
	"fmt"
	"strconv"
	"strings"
)

// CollisionType names one of the ten preset pairs of (membership, filter)
// group lists. The zero value and any unknown value select the "most
// collisions" baseline.
type CollisionType int

const (
	AllCollisions CollisionType = iota + 1
	DefaultCollisions
	NoCollisions
	NoSelfCollisions
	NoSelfMostCollisions
	NoSelfFewCollisions
	MostCollisions1
	MostCollisions2
	FewCollisions1
	FewCollisions2
)

// MaxCollisionGroup is the highest group number the encoder accepts.
// Groups 9 and 10 exist in AllCollisions and NoCollisions memberships and
// still occupy their bits.
const MaxCollisionGroup = 16

var allGroups = []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

// CollisionGroups returns membership and filter group numbers of a preset.
// Unknown presets fall back to the "most collisions" baseline.
func CollisionGroups(t CollisionType) (membership []int, filter []int) {
	switch t {
	case AllCollisions:
		return allGroups, allGroups
	case DefaultCollisions:
		return []int{1, 2}, []int{1, 2}
	case NoCollisions:
		return allGroups, []int{8}
	case NoSelfCollisions:
		return []int{5}, []int{1, 2, 3, 4}
	case NoSelfMostCollisions:
		return []int{6}, []int{1, 2, 5}
	case NoSelfFewCollisions:
		return []int{6}, []int{7}
	case MostCollisions1:
		return []int{1, 5, 6}, []int{1, 5, 6}
	case MostCollisions2:
		return []int{2, 5, 6}, []int{2, 5, 6}
	case FewCollisions1:
		return []int{3}, []int{3}
	case FewCollisions2:
		return []int{4}, []int{4}
	default:
		return []int{1, 2, 5, 6}, []int{1, 2, 5, 6}
	}
}

// groupMaskHex builds a 16 character binary string with character 16-g set
// for every group g, so group g lands on bit g-1, and renders it as 4 upper
// case hex digits.
func groupMaskHex(groups []int) string {
	bits := []byte(strings.Repeat("0", 16))
	for _, g := range groups {
		if g < 1 || g > MaxCollisionGroup {
			continue
		}
		bits[16-g] = '1'
	}
	v, _ := strconv.ParseUint(string(bits), 2, 16)
	return fmt.Sprintf("%04X", v)
}

// CollisionGroupsHex packs membership and filter lists into one value whose
// hex form is membershipHex followed by filterHex.
func CollisionGroupsHex(membership, filter []int) uint32 {
	v, _ := strconv.ParseUint(groupMaskHex(membership)+groupMaskHex(filter), 16, 32)
	return uint32(v)
}

// DecodeCollisionGroups splits a packed value back into sorted group lists.
func DecodeCollisionGroups(packed uint32) (membership []int, filter []int) {
	return maskGroups(uint16(packed >> 16)), maskGroups(uint16(packed))
}

func maskGroups(mask uint16) []int {
	var groups []int
	for g := 1; g <= MaxCollisionGroup; g++ {
		if mask&(1<<(g-1)) != 0 {
			groups = append(groups, g)
		}
	}
	return groups
}

// CollisionTypeGroups is CollisionGroupsHex applied to a preset.
func CollisionTypeGroups(t CollisionType) uint32 {
	return CollisionGroupsHex(CollisionGroups(t))
}
