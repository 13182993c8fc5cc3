package model

// ReferenceStates is the seed list of Malaysian states, keyed by code.
var ReferenceStates = []MsiaState{
	{Name: "Johor", Code: "JH"},
	{Name: "Kedah", Code: "KD"},
	{Name: "Kelantan", Code: "KN"},
	{Name: "Malacca", Code: "ML"},
	{Name: "Negeri Sembilan", Code: "NS"},
	{Name: "Pahang", Code: "PH"},
	{Name: "Penang", Code: "PG"},
	{Name: "Perak", Code: "PR"},
	{Name: "Perlis", Code: "PL"},
	{Name: "Sabah", Code: "SB"},
	{Name: "Sarawak", Code: "SW"},
	{Name: "Selangor", Code: "SG"},
	{Name: "Terengganu", Code: "TR"},
	{Name: "Kuala Lumpur", Code: "KL"},
	{Name: "Putrajaya", Code: "PJ"},
	{Name: "Labuan", Code: "LB"},
}

// ReferenceCarParts is the fixed catalog of vehicle components.
var ReferenceCarParts = []CarPart{
	{Name: "Front Windscreen", Code: "FWS"},
	{Name: "Front Right", Code: "R1"},
	{Name: "Front Left", Code: "L1"},
	{Name: "Rear Right", Code: "R2"},
	{Name: "Rear Left", Code: "L2"},
	{Name: "Rear Windscreen", Code: "RWS"},
	{Name: "Sunroof", Code: "SR"},
	{Name: "Front Bumper", Code: "FB"},
	{Name: "Rear Bumper", Code: "RB"},
}
