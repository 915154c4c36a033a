package service

import "fmt"

func f2(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
