package main

import (
	"regexp"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func Test_GenerateData(t *testing.T) {
	Convey("GenerateData()", t, func() {
		lowercase := regexp.MustCompile(`^[a-z]+$`)

		Convey("always returns 10 lowercase letters", func() {
			for i := 0; i < 1000; i++ {
				data := GenerateData()
				So(len(data), ShouldEqual, 10)
				So(lowercase.MatchString(data), ShouldBeTrue)
			}
		})

		Convey("returns a different string on each call", func() {
			seen := make(map[string]struct{}, 100)
			for i := 0; i < 100; i++ {
				seen[GenerateData()] = struct{}{}
			}

			// 26^10 possibilities, so a collision here means no randomness
			So(len(seen), ShouldEqual, 100)
		})

		Convey("uses the whole alphabet", func() {
			letters := make(map[rune]struct{}, 26)
			for i := 0; i < 1000; i++ {
				for _, r := range GenerateData() {
					letters[r] = struct{}{}
				}
			}

			So(len(letters), ShouldEqual, 26)
		})
	})
}
