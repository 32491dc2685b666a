// Package util provides common utility data structures
//
// This package includes a generic set and a dotted-path index used to
// resolve fact targets such as "stage.question1.value"
package util
