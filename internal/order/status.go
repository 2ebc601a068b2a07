package order

type Status string

const (
	StatusPending  Status = "pending"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusComplete, StatusFailed:
		return true
	}
	return false
}
