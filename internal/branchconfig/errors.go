package branchconfig

import "errors"

// ErrBranchNotInMarket is returned by Reset when the branch is missing or belongs to another market.
var ErrBranchNotInMarket = errors.New("branch not found in market")
