// Package abi holds overflow-checked arithmetic for wire offsets and sizes.
//
// Decode operates on attacker-controlled lengths and counts; every size
// computation that feeds an arena claim goes through these helpers so a
// wrapped add or multiply can never under-allocate.
//
// This package is internal to the codec.
package abi
