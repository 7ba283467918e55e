// SPDX-License-Identifier: EPL-2.0

package ops_test

import (
	"fmt"

	"github.com/ik5/audload/ops"
)

func ExampleDetectNonSilent() {
	x := make([]float32, 8000)
	for i := 2000; i < 5000; i++ {
		x[i] = 0.25
	}

	r := ops.DetectNonSilent(x, ops.RegionOptions{CutoffDB: -60, WindowLength: 512})
	fmt.Println(r.Begin, r.Length)
	// Output: 2000 3000
}

func ExampleParseBorder() {
	b, err := ops.ParseBorder("reflect")
	fmt.Println(b, err)
	// Output: reflect <nil>
}
