package search

func checkPerPage(perPage int) error {
	if perPage <= 0 {
		return &ConfigError{Field: "results per page", Reason: "must be positive"}
	}
	return nil
}

// PageIndexOf returns the 1-based page holding the result at rank.
func PageIndexOf(rank, perPage int) (int, error) {
	if err := checkPerPage(perPage); err != nil {
		return 0, err
	}
	if rank < 1 {
		return 0, ErrInvalidRank
	}
	return (rank-1)/perPage + 1, nil
}

// ResultOffsetOf returns the number of results preceding pageIndex.
func ResultOffsetOf(pageIndex, perPage int) (int, error) {
	if err := checkPerPage(perPage); err != nil {
		return 0, err
	}
	if pageIndex < 1 {
		return 0, ErrInvalidPageIndex
	}
	return (pageIndex - 1) * perPage, nil
}

// ResultIndexOf returns the 0-based position of rank within its page.
func ResultIndexOf(rank, perPage int) (int, error) {
	if err := checkPerPage(perPage); err != nil {
		return 0, err
	}
	if rank < 1 {
		return 0, ErrInvalidRank
	}
	return (rank - 1) % perPage, nil
}
