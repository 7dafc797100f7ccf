package phys

// InteractionGroups packs a 16 bit membership mask in the high half and a
// 16 bit filter mask in the low half.
type InteractionGroups uint32

const AllGroups InteractionGroups = 0xFFFFFFFF

func (g InteractionGroups) Memberships() uint16 {
	return uint16(g >> 16)
}

func (g InteractionGroups) Filter() uint16 {
	return uint16(g)
}

// Test reports whether two colliders with these groups may interact. Each
// side's membership must intersect the other side's filter.
func (g InteractionGroups) Test(o InteractionGroups) bool {
	return g.Memberships()&o.Filter() != 0 && o.Memberships()&g.Filter() != 0
}
