package provision

type Status string

const (
	StatusRequested Status = "Requested"
	StatusPending   Status = "Pending"
	StatusRunning   Status = "Running"
	StatusFailed    Status = "Failed"
)

// Allocation is the lifecycle record of one game-server provisioning
// request. It only ever moves Requested -> Pending -> Running, or
// Requested -> Failed; a request abandoned past the poll budget never
// transitions again.
type Allocation struct {
	RequestID string
	Status    Status
	PublicIP  string
	Port      int
}
