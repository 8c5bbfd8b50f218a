package decode

type counterKey struct {
	table string
	page  int
}

// Accumulator collects the rows of one workflow run. Page decoders append to
// it; the run sorts it once at the end.
type Accumulator struct {
	Tables

	counters map[counterKey]int
}

func NewAccumulator() *Accumulator {
	return &Accumulator{counters: make(map[counterKey]int)}
}

// next returns the next sequence number of table on page, starting at 0.
// Numbers keep counting across classifications of the same page.
func (a *Accumulator) next(table string, page int) int {
	k := counterKey{table, page}
	n := a.counters[k]
	a.counters[k] = n + 1
	return n
}

func (a *Accumulator) addIndex(e IndexEntry) {
	e.Entry = a.next(TableIndex, e.Page)
	a.Index = append(a.Index, e)
}

func (a *Accumulator) addName(e NameEntry) {
	e.Entry = a.next(TableNames, e.Page)
	a.Names = append(a.Names, e)
}
