package domain

// Command is a request submitted to the Aggregate. The set is closed, only the
// types in this file implement it.
type Command interface {
	commandName() string
}

// CreateAuction opens a new auction with the given terms. The auction id is the
// id the aggregate was built for, issued by the repository.
type CreateAuction struct {
	Terms AuctionTerms
}

type StartAuction struct{}

// CloseAuction is an owner initiated close
type CloseAuction struct{}

// EndAuction marks the deadline as reached, issued by whoever tracks deadlines.
type EndAuction struct{}

// MakeBidOffer submits a candidate bid. Any increment on the bid is ignored and recomputed.
type MakeBidOffer struct {
	Bid Bid
}

func (CreateAuction) commandName() string { return "CreateAuction" }
func (StartAuction) commandName() string  { return "StartAuction" }
func (CloseAuction) commandName() string  { return "CloseAuction" }
func (EndAuction) commandName() string    { return "EndAuction" }
func (MakeBidOffer) commandName() string  { return "MakeBidOffer" }

// CommandName returns the name used in logs and lifecycle errors.
func CommandName(cmd Command) string {
	if cmd == nil {
		return "<nil>"
	}
	return cmd.commandName()
}
