// Package domain models the storm statistics behind the coastal storm
// dashboard and the fixed reference data its charts are drawn against.
//
// # Data Source
//
// Storm statistics are pre-aggregated upstream (outside this service) from
// water-level and wind records at four Dutch tide gauges: Delfzijl,
// Harlingen, Hoek van Holland and Vlissingen. Two CSV files arrive:
//
//	4locs_storms_rose_binned.csv   one row per (location, wind sector)
//	4locs_storms_hists_binned.csv  one row per (location, wind sector, bin)
//
// Both carry a leading unnamed index column written by pandas, which is
// dropped on load.
//
// # Wind Rose Columns
//
//	location        tide gauge identifier, e.g. "delfzijl"
//	wind_dir        compass sector label, e.g. "NNW"
//	sector          sector index used to order the rose clockwise from north
//	mean_windspeed  mean peak wind speed of storms in the sector (m/s)
//	count           number of storms in the sector
//
// # Histogram Columns
//
// For every statistic p there are three columns: p (bin start), p_end (bin
// end) and p_count (number of storms in the bin). The statistics are:
//
//	fase       surge peak relative to high tide, hours, domain [-6, 6]
//	windfase   wind peak relative to high tide, hours, domain [-24, 24]
//	windduur   wind duration, hours, domain [0, 60]
//	opzetduur  surge duration, hours, domain [0, 40]
//
// Statistics have different bin counts, so shorter columns are padded with
// empty cells. Empty numeric cells load as NaN and are emitted as null.
//
// # Reference Data
//
// Reference datasets (gauge locations, compass labels, rose gridlines) are
// built from literals by [NewReferenceData] and handed to chart builders as
// values. Nothing in this package holds mutable package-level state.
package domain
