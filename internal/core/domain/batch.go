package domain

// SnapshotFailure - один снимок из пакета, который не удалось обработать.
type SnapshotFailure struct {
	ID     string
	Reason string
}

// BatchResult - итог обработки одного пакета снимков от источника.
// Порядок в New и Updated совпадает с порядком снимков на входе.
type BatchResult struct {
	Source  string
	New     []Listing
	Updated []UpdatedListing
	Removed []Listing
	Failed  []SnapshotFailure
}

// UpdatedListing - обновлённая запись вместе со списком изменившихся полей.
type UpdatedListing struct {
	Listing Listing
	Diffs   []FieldChange
}

// Empty сообщает, было ли в пакете хоть одно фактическое изменение.
func (r BatchResult) Empty() bool {
	return len(r.New) == 0 && len(r.Updated) == 0 && len(r.Removed) == 0
}

// SourceStat - счётчики записей по одному источнику.
type SourceStat struct {
	Source   string
	Active   int
	Inactive int
}
