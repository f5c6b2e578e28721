package databases

import "go.mongodb.org/mongo-driver/mongo/options"

type mongoPaginate struct {
	limit int64
	page  int64
}

func newMongoPaginate(limit, page int) *mongoPaginate {
	if limit <= 0 {
		limit = 10
	}
	if page <= 0 {
		page = 1
	}
	return &mongoPaginate{
		limit: int64(limit),
		page:  int64(page),
	}
}

func (mp *mongoPaginate) getPaginatedOpts() *options.FindOptions {
	l := mp.limit
	skip := mp.page*mp.limit - mp.limit
	fOpt := options.FindOptions{Limit: &l, Skip: &skip}

	return &fOpt
}

// PaginatedFindOptions returns find options for a 1-based page of the given size,
// sorted by sort (may be nil).
func PaginatedFindOptions(limit, page int, sort interface{}) *options.FindOptions {
	opts := newMongoPaginate(limit, page).getPaginatedOpts()
	if sort != nil {
		opts.SetSort(sort)
	}
	return opts
}
