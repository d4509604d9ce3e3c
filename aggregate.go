package silo

// Count executes the query and returns only its cardinality, bypassing
// sort/limit/offset entirely (spec §4.9: "count ... bypasses sort/limit
// when count is requested alone").
func (b *QueryBuilder) Count() (int, error) {
	result, err := b.execute(ExecuteOptions{})
	if err != nil {
		return 0, err
	}
	return len(result), nil
}

// Extract pulls a numeric observation out of one result tuple, the
// caller-supplied half of the Sum/Avg/Min/Max aggregations.
type Extract func(ResultTuple) float64

// Sum executes the query and folds extract over every matching tuple.
func (b *QueryBuilder) Sum(extract Extract) (float64, error) {
	result, err := b.execute(ExecuteOptions{})
	if err != nil {
		return 0, err
	}
	var total float64
	for _, t := range result {
		total += extract(t)
	}
	return total, nil
}

// Avg executes the query and returns the mean of extract over every
// matching tuple, 0 if nothing matched.
func (b *QueryBuilder) Avg(extract Extract) (float64, error) {
	result, err := b.execute(ExecuteOptions{})
	if err != nil {
		return 0, err
	}
	if len(result) == 0 {
		return 0, nil
	}
	var total float64
	for _, t := range result {
		total += extract(t)
	}
	return total / float64(len(result)), nil
}

// Min executes the query and returns the smallest extract(tuple), and
// false if nothing matched.
func (b *QueryBuilder) Min(extract Extract) (float64, bool, error) {
	result, err := b.execute(ExecuteOptions{})
	if err != nil {
		return 0, false, err
	}
	if len(result) == 0 {
		return 0, false, nil
	}
	min := extract(result[0])
	for _, t := range result[1:] {
		if v := extract(t); v < min {
			min = v
		}
	}
	return min, true, nil
}

// Max executes the query and returns the largest extract(tuple), and
// false if nothing matched.
func (b *QueryBuilder) Max(extract Extract) (float64, bool, error) {
	result, err := b.execute(ExecuteOptions{})
	if err != nil {
		return 0, false, err
	}
	if len(result) == 0 {
		return 0, false, nil
	}
	max := extract(result[0])
	for _, t := range result[1:] {
		if v := extract(t); v > max {
			max = v
		}
	}
	return max, true, nil
}

// Fold executes the query and reduces it through a caller-supplied
// accumulator — the escape hatch for aggregations Sum/Avg/Min/Max don't
// cover (spec §4.9's "custom fold").
func (b *QueryBuilder) Fold(init any, fold func(acc any, t ResultTuple) any) (any, error) {
	result, err := b.execute(ExecuteOptions{})
	if err != nil {
		return nil, err
	}
	acc := init
	for _, t := range result {
		acc = fold(acc, t)
	}
	return acc, nil
}
