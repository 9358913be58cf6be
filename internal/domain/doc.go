// Package domain implements the crop monitoring analysis core: time-series
// alignment and smoothing, growing-season detection, health classification,
// baseline/anomaly grid math, and threshold alerting.
//
// # Data Source
//
// Observations originate from an upstream acquisition service that queries a
// STAC catalog, reads and reprojects raster bands to a common field grid,
// applies scene-classification cloud masking, and reduces each scene to
// field-mean scalars. The acquisition service publishes one snapshot per
// field to the Kafka source topic; this package never performs I/O itself.
//
// # Measurement Conventions
//
// Vegetation index (ndvi):
//
//	(NIR − RED) / (NIR + RED), dimensionless, nominally in [-1, 1].
//	Cropland values of interest sit roughly between 0.2 (bare/stressed)
//	and 0.9 (dense canopy). Each observation carries the cloud fraction
//	measured over the field at acquisition time; it doubles as the
//	quality flag (lower is cleaner).
//
// Land surface temperature (lst):
//
//	Degrees Celsius, already rescaled from Landsat Collection 2 DN values
//	by the acquisition service (Kelvin = DN × 0.00341802 + 149.0).
//
// Rainfall:
//
//	Millimetres per day from the CHIRPS daily product. Cadence is daily
//	and dense, unlike the optical series which are irregular (5–16 day
//	revisit minus cloudy scenes). Series are never resampled onto a
//	shared cadence; each metric keeps its native one.
//
// Radar backscatter (radar_vv, radar_vh):
//
//	Sentinel-1 linear power values; converted to dB here for flood
//	thresholding.
//
// # Seasons
//
// A growing season is a contiguous interval where the smoothed vegetation
// index exceeds a configurable threshold. Season end is either a gradual
// recross of the threshold (senescence) or a sharp drop from a recent peak
// within a bounded window (harvest). Multiple seasons per calendar year are
// expected in multi-cropping regions; detection is purely event-driven.
//
// Everything in this package is a pure function over caller-owned data:
// no I/O, no retained state, no shared mutable globals apart from the
// swappable clock used to stamp reports.
package domain
