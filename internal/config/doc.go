// Package config loads, validates and saves detector configurations.
//
// A configuration is a YAML document naming a threshold policy, the minimum
// distance between objects and an ordered filter list:
//
//	threshold:
//	  type: Range
//	  min: 40
//	  max: 120
//	  step: 10
//	  minRepeatability: 2
//	minDistBetweenObjects: 10
//	filters:
//	  - type: AreaFilter
//	    min: 2000
//	    max: 20000
//
// Type names resolve through a Registry passed explicitly to Load and Build.
// Validation builds every record up front so a bad file fails at load time,
// with all of its problems reported together.
package config
