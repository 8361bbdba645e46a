package cerr

//go:generate go tool stringer -type=Code -output=code_string.go code.go
type Code int

const (
	OK         = Code(0)
	Parse      = Code(1)
	Expression = Code(2)
	Filesystem = Code(3)
	Protocol   = Code(4)
	Internal   = Code(5)
)
