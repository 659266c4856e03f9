// Package request turns loosely typed fetch requests into a canonical Config.
package request
