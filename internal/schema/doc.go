// Package schema defines the yoga course and class session records.
//
// # Records
//
// A Course is a recurring weekly slot (day of week, start time, capacity,
// duration, price, class type). A ClassSession is one dated occurrence of a
// course, taught by a named teacher.
//
// Field encodings mirror what the local store persists and what the remote
// sync endpoints expect:
//
//   - day of week: English weekday name ("Monday" ... "Sunday")
//   - time: "H:MM", 24-hour, no leading zero on the hour ("9:00", "18:30")
//   - capacity, duration, price: text
//   - date: "MM/DD/YYYY" ("03/10/2025")
//
// The JSON field names (dayOfTheWeek, typeOfClass, courseId, ...) are the
// sync wire format and must not change:
//
//	{
//	  "id": 1,
//	  "dayOfTheWeek": "Monday",
//	  "time": "9:00",
//	  "capacity": "20",
//	  "duration": "60",
//	  "price": "15.00",
//	  "typeOfClass": "Flow Yoga"
//	}
//
// # Validation
//
// Validate methods implement form-level checks for user input. The store does
// not call them; it only enforces its own constraints (foreign key and
// weekday consistency).
package schema
