package eval

import "fmt"

// ConfusionMatrix counts (actual, predicted) category pairs.
// Rows are actual categories and columns are predicted ones.
type ConfusionMatrix struct {
	categories int
	cells      [][]int
}

// NewConfusionMatrix creates an empty categories x categories matrix.
func NewConfusionMatrix(categories int) *ConfusionMatrix {
	cells := make([][]int, categories)
	for i := range cells {
		cells[i] = make([]int, categories)
	}
	return &ConfusionMatrix{categories: categories, cells: cells}
}

// Categories returns the matrix dimension.
func (m *ConfusionMatrix) Categories() int { return m.categories }

// AddInstance counts one prediction.
func (m *ConfusionMatrix) AddInstance(actual, predicted int) error {
	if actual < 0 || actual >= m.categories {
		return fmt.Errorf("actual category %d outside [0,%d]", actual, m.categories-1)
	}
	if predicted < 0 || predicted >= m.categories {
		return fmt.Errorf("predicted category %d outside [0,%d]", predicted, m.categories-1)
	}
	m.cells[actual][predicted]++
	return nil
}

// Merge adds the counts of another matrix of the same size.
func (m *ConfusionMatrix) Merge(other *ConfusionMatrix) error {
	if other.categories != m.categories {
		return fmt.Errorf("cannot merge %dx%d matrix into %dx%d", other.categories, other.categories, m.categories, m.categories)
	}
	for i, row := range other.cells {
		for j, n := range row {
			m.cells[i][j] += n
		}
	}
	return nil
}

// Total returns the number of counted instances.
func (m *ConfusionMatrix) Total() int {
	var total int
	for _, row := range m.cells {
		for _, n := range row {
			total += n
		}
	}
	return total
}

// Correct returns the trace.
func (m *ConfusionMatrix) Correct() int {
	var correct int
	for i := range m.cells {
		correct += m.cells[i][i]
	}
	return correct
}

// Accuracy is trace/total, or 0 for an empty matrix.
func (m *ConfusionMatrix) Accuracy() float64 {
	total := m.Total()
	if total == 0 {
		return 0
	}
	return float64(m.Correct()) / float64(total)
}

// Rows returns a copy of the counts.
func (m *ConfusionMatrix) Rows() [][]int {
	rows := make([][]int, m.categories)
	for i, row := range m.cells {
		rows[i] = append([]int(nil), row...)
	}
	return rows
}
