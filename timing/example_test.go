package timing

import (
	"fmt"
)

func ExampleCompute() {
	limits, _ := Controller("bxcan")
	sols, err := Compute(80, 500_000, CANopen, 1, limits)
	if err != nil {
		panic(err)
	}
	for p := range sols.All() {
		fmt.Printf("BRP=%d SEG1=%d SEG2=%d SJW=%d SP=%d\n", p.Prescaler, p.Seg1, p.Seg2, p.JumpWidth, p.SamplePoint())
	}
	// Output:
	// BRP=10 SEG1=14 SEG2=1 SJW=1 SP=937
	// BRP=16 SEG1=8 SEG2=1 SJW=1 SP=900
	// BRP=20 SEG1=6 SEG2=1 SJW=1 SP=875
}
