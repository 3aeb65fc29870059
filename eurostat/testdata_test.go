package eurostat

// hicpFixture has dimensions freq(1) x unit(1) x coicop(2) x geo(2) x time(3) with a sparse value
// object. The flat index is coicop*6 + geo*3 + time.
const hicpFixture = `{
  "version": "2.0",
  "class": "dataset",
  "label": "HICP - monthly data (annual rate of change)",
  "source": "ESTAT",
  "updated": "2024-04-17T23:00:00+0200",
  "id": ["freq", "unit", "coicop", "geo", "time"],
  "size": [1, 1, 2, 2, 3],
  "value": {"0": 7.5, "1": 7.2, "2": 6.9, "3": 6.1, "5": 5.3, "6": 12.1, "8": 9.8, "9": 4.0, "10": 3.1, "11": 2.2},
  "dimension": {
    "freq": {"label": "Time frequency", "category": {"index": {"M": 0}, "label": {"M": "Monthly"}}},
    "unit": {"label": "Unit of measure", "category": {"index": {"RCH_A": 0}, "label": {"RCH_A": "Annual rate of change"}}},
    "coicop": {"label": "COICOP", "category": {"index": {"CP00": 0, "NRG": 1}, "label": {"CP00": "All-items HICP", "NRG": "Energy"}}},
    "geo": {"label": "Geopolitical entity", "category": {"index": {"AT": 0, "EA20": 1}, "label": {"AT": "Austria", "EA20": "Euro area - 20 countries"}}},
    "time": {"label": "Time", "category": {"index": {"2024-01": 0, "2024-02": 1, "2024-03": 2}, "label": {"2024-01": "2024-01", "2024-02": "2024-02", "2024-03": "2024-03"}}}
  }
}`

// rateFixture uses the array forms of the index and value fields and Eurostat's M time codes
const rateFixture = `{
  "version": "2.0",
  "class": "dataset",
  "id": ["freq", "int_rt", "geo", "time"],
  "size": [1, 2, 1, 2],
  "value": [4.5, 4.5, 4.0, null],
  "dimension": {
    "freq": {"category": {"index": ["M"]}},
    "int_rt": {"category": {"index": ["MRR_RT", "DFR"]}},
    "geo": {"category": {"index": ["EA"]}},
    "time": {"category": {"index": ["2024M01", "2024M02"]}}
  }
}`
