package xfile_test

import (
	"fmt"

	"github.com/omeyang/xworkpool/pkg/util/xfile"
)

func ExampleCheckFilePath() {
	p, err := xfile.CheckFilePath("./logs//xtank.log")
	fmt.Println(p, err)

	_, err = xfile.CheckFilePath("logs/")
	fmt.Println(err)
	// Output:
	// logs/xtank.log <nil>
	// xfile: path names a directory: "logs/"
}
