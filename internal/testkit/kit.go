package testkit

import (
	"fmt"
	"math/big"

	"rmvc/domain/dataset"
	"rmvc/domain/softset"
)

// WorkedExampleTable is the published reference relation: rows are
// candidates 1..5, columns are criteria e1..e4.
func WorkedExampleTable() *dataset.Table {
	tbl := dataset.NewTable("worked-example", []string{"1", "2", "3", "4", "5"}, []string{"e1", "e2", "e3", "e4"})
	rows := [][]float64{
		{1, 0, 1, 1},
		{1, 1, 0, 1},
		{1, 0, 1, 0},
		{0, 1, 1, 0},
		{1, 1, 0, 1},
	}
	for i, r := range rows {
		copy(tbl.Values[i], r)
	}
	return tbl
}

// WorkedExample returns the reference soft set
// Φ(e_1)={1,2,3,5}, Φ(e_2)={2,4,5}, Φ(e_3)={1,3,4}, Φ(e_4)={1,2,5}.
func WorkedExample() *softset.SoftSet {
	s, err := softset.New([]string{"1", "2", "3", "4", "5"}, []softset.Criterion{
		{Key: "e_1", Label: "e1", Members: []string{"1", "2", "3", "5"}},
		{Key: "e_2", Label: "e2", Members: []string{"2", "4", "5"}},
		{Key: "e_3", Label: "e3", Members: []string{"1", "3", "4"}},
		{Key: "e_4", Label: "e4", Members: []string{"1", "2", "5"}},
	})
	if err != nil {
		panic(fmt.Sprintf("testkit: worked example: %v", err))
	}
	return s
}

// ReferenceValue is one published membership value of the worked example.
type ReferenceValue struct {
	Criterion string
	Candidate string
	Want      *big.Rat
}

// WorkedExampleReference lists the seven published non-member values.
func WorkedExampleReference() []ReferenceValue {
	return []ReferenceValue{
		{"e_1", "4", big.NewRat(1, 3)},
		{"e_2", "1", big.NewRat(5, 9)},
		{"e_2", "3", big.NewRat(1, 3)},
		{"e_3", "2", big.NewRat(4, 9)},
		{"e_3", "5", big.NewRat(4, 9)},
		{"e_4", "3", big.NewRat(4, 9)},
		{"e_4", "4", big.NewRat(1, 3)},
	}
}

// FirmProductCSV is a firm x product purchase table (amounts, 0 = none).
// Rows are firms, columns are products.
const FirmProductCSV = `FirmaID,52757,88109,3350,64670,120333,105628,61375,24349,117567,118605,107321,113309,73320,3347,40640,17226,78845,93712,3190,119476
6567,0,0,0,0,0,0,9800,0,0,0,0,0,0,0,0,0,0,0,0,0
5871,0,24700,0,0,0,24590,1600,0,4260,0,0,2170,0,0,0,0,2850,0,0,0
4775,0,0,3400,17450,0,0,0,0,6250,0,0,0,0,0,0,0,0,0,370150,0
8179,13900,0,0,0,0,0,0,26850,0,0,2000,1000,0,0,0,0,0,0,0,0
974,0,1100,0,4500,0,0,0,0,0,0,1500,0,0,0,0,0,0,3645,0,2907
713,0,0,0,0,0,0,0,0,0,0,1375,0,0,0,0,0,0,0,0,0
3797,28500,0,0,0,0,0,0,0,0,0,1000,1200,0,0,0,0,1200,18500,0,500
5096,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0
5815,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0
897,100903,0,0,0,55000,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0
2027,0,23570,0,500,0,0,0,4900,1200,0,0,0,0,0,0,0,0,0,17465,0
3008,0,0,16000,0,0,0,0,0,0,1900,0,0,0,0,0,0,0,0,0,0
872,0,0,0,0,0,0,1200,0,0,5950,0,0,0,0,1300,0,0,0,0,0
9975,5500,0,0,0,0,1500,0,0,0,600,0,0,0,0,0,0,0,0,0,0
2537,0,0,0,4800,0,0,0,75425,0,0,0,0,0,0,0,0,0,0,0,0
2842,4000,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,19550,0,0
5336,0,0,0,0,0,0,112750,0,0,0,0,0,0,0,0,0,4100,0,0,0
6885,0,1600,6000,0,0,0,443279,0,0,0,0,0,0,0,0,0,0,0,0,0
9206,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0
6372,0,7450,0,0,0,0,0,5500,0,0,0,0,0,6100,0,0,0,0,1000,0
`

// WorkedExampleCSV is WorkedExampleTable in CSV form.
const WorkedExampleCSV = `u,e1,e2,e3,e4
1,1,0,1,1
2,1,1,0,1
3,1,0,1,0
4,0,1,1,0
5,1,1,0,1
`
