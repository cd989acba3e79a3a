package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/alecthomas/repr"
	"github.com/kartiknair/fun/pkg/compiler"
	"github.com/kartiknair/fun/pkg/diag"
	"github.com/kartiknair/fun/pkg/gen"
)

func main() {
	code := `
fun main() {
	let total = 0;
	for 0 : 10 = 2 i {
		total = total + i;
	}
	let ratio = total / 4.0;
	if total == 20 {
		print("total: {}, ratio: {}\n", total, ratio);
	} elif total =! 0 {
		print("unexpected total\n");
	}
}
`
	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err.Error())
	}
	path := filepath.Join(cwd, "main.fun")

	m, err := compiler.Frontend(path, code)
	if err != nil {
		log.Fatal(diag.Report(err))
	}
	repr.Println(m.Statements)

	gennedC, err := gen.Gen(m, gen.C)
	if err != nil {
		log.Fatal(diag.Report(err))
	}
	fmt.Println(gennedC)

	// gennedLLVM, _ := gen.Gen(m, gen.LLVM)
	// fmt.Println(gennedLLVM)
}
