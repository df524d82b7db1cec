// Package timezones provides the IANA timezone names as a vocabulary for
// choice fields and a JSON search handler for select inputs that complete
// as the user types.
//
// Register makes the vocabulary available to schema documents:
//
//	fields:
//	  - name: zone
//	    kind: choice
//	    vocabulary: timezones
//
// The handler answers GET and HEAD requests with the terms matching the
// query parameter, using the tokens the form expects on submit.
package timezones
