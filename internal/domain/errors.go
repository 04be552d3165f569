package domain

import "errors"

// ErrNoGeocodingResult means every candidate in both remote passes was
// exhausted without a finite-coordinate result. The caller renders the
// "location unresolved" variant while keeping any cached weather.
var ErrNoGeocodingResult = errors.New("no geocoding result")

// ErrMalformedAlmanac means the almanac provider answered with a missing
// success code or missing data payload. Treated identically to a network
// failure: the previously rendered almanac is kept.
var ErrMalformedAlmanac = errors.New("malformed almanac response")
