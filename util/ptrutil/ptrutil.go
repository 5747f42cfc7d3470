package ptrutil

// ToPtr returns a pointer to a copy of v. OpenRTB optional fields such as imp.banner.w and
// regs.gdpr are pointers.
func ToPtr[T any](v T) *T {
	return &v
}
